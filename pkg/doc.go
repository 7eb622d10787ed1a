// Package pkg provides the libraries behind squaregrid.
//
// # Overview
//
// Squaregrid turns a gallery page listing hundreds of artwork thumbnails into
// a single zoomable image. It scrapes the page, places every square in its
// column and row, stitches the full-size images into one canvas, slices the
// canvas into a Deep Zoom pyramid and writes a grid descriptor that lets a
// viewer map a point of the canvas back to the artist.
//
// # Architecture
//
// The data flow of a build:
//
//	grid page (HTML)
//	     ↓
//	[scrape] records: image path, label, detail URL
//	     ↓
//	[grid] column and row of every record
//	     ↓
//	[fetch] full-size images          [descriptor] squaresdescriptor.xml
//	     ↓
//	[canvas] one stitched image
//	     ↓
//	[pyramid] <name>.dzi + <name>_files/
//
// [pipeline] runs these phases in order, skipping any whose artifact already
// exists.
//
// # Main Packages
//
//   - [grid]: records, the column resolver and the layout metrics
//   - [scrape]: page cleanup and record extraction
//   - [descriptor]: the grid descriptor writer and reader
//   - [canvas]: in-place compositing of squares
//   - [pyramid]: Deep Zoom tiling
//   - [fetch]: cached, retrying HTTP fetcher and the image downloader
//   - [pipeline]: options, config file and the build runner
//
// # Infrastructure
//
//   - [cache]: file, redis and no-op caches for fetched bytes
//   - [errors]: coded errors and input validation
//   - [httputil]: retry with backoff
//   - [io]: atomic file writes and the records.json format
//   - [observability]: pipeline, cache and HTTP hooks
//   - [buildinfo]: version information
package pkg
