// Package core is the service layer around the column rewrite pipeline.
//
// The pipeline itself lives in package transform and is pure. This package
// adds what a server needs on top of it:
//
//   - request validation, including description presets (see [LookupPreset])
//   - a concurrency [Limiter] so large uploads cannot exhaust memory
//   - Prometheus [Metrics]
//   - a [HistoryStore] of past runs, in PostgreSQL or in memory
//   - [MapError], which turns any error into a [UserMessage] with a code
//
// # Usage
//
//	svc := core.NewService(core.Options{MaxConcurrent: 4, History: store})
//	resp, err := svc.Transform(ctx, core.TransformRequest{
//	    FileName:    "people.csv",
//	    Data:        data,
//	    Column:      "name",
//	    Pattern:     "_",
//	    Replacement: " ",
//	})
//	if err != nil {
//	    msg := core.MapError(err) // msg.Code == "COL001", ...
//	}
package core
