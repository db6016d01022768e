// Package metrics provides observability hooks for prompt builds and reference checks.
//
// Components receive a Recorder through their options and default to NoopRecorder,
// so metrics collection never requires nil checks at call sites:
//
//	builder := assemble.NewBuilder(cfg, store, resolver, assemble.WithRecorder(rec))
//
// PrometheusRecorder registers its collectors on a caller supplied registry. The CLI
// snapshots that registry into a node_exporter textfile with WriteTextfile when
// --metrics-file is set.
package metrics
