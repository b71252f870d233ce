// Package origin holds the network backends the asset cache fetches from:
// a plain HTTP origin and an S3-compatible bucket.
package origin
