/*
Package ports defines the interfaces that connect the NexusMind pipeline to its
stages and to external infrastructure.

# Key Interfaces

  - Stage: one step of the fixed eight-stage pipeline.
  - SessionStore: persists finished session records.
  - DistributedLocker: coordinates access to a session across replicas.
*/
package ports
