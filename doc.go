// Package optigo provides density-based spatial clustering for 2D and 3D
// point sets.
//
// It implements the OPTICS ordering algorithm on top of pluggable
// nearest-neighbor spatial indexes, with DBSCAN and hierarchical Xi cluster
// extraction over the resulting reachability plot.
//
// # Quick Start
//
//	res, _ := optigo.Grid().
//	    MinPoints(8).
//	    Epsilon(0.5).
//	    MustBuild().
//	    Fit(xs, ys)
//
//	n, _ := res.ExtractDBSCAN(0.5)          // flat epsilon clustering
//	hier, _ := res.ExtractXi(0.05)          // hierarchical extraction
//	tags := res.Assignments()               // cluster id per input point
//
// # Index Strategies
//
//   - optigo.Grid: uniform grid with auto-tuned cell resolution; the default
//     for dense, roughly uniform data.
//   - optigo.Tree: exact k-d tree; moderate point counts or highly
//     non-uniform density.
//   - optigo.Projected: approximate randomized-projection index for very
//     large N; concurrent build, reproducible under a fixed seed.
//
// # Distances
//
// All distances are squared Euclidean internally; the public API reports
// true distances. A missing core or reachability distance is +Inf.
package optigo
