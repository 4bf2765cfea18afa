/*
Package stages provides the default implementation of the eight pipeline stages.

Each stage embeds BaseStage, reads its tuning options from the session's
operational parameters (see Params) and earlier results through
domain.ResultOf, and mutates the session graph in place. The reasoning is
deterministic and heuristic: it exists so the pipeline runs end to end and can
be replaced stage by stage through a Registry.

Node and edge ids are derived from random UUIDs, so two sessions never share ids.
*/
package stages
