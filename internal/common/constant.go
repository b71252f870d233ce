// Package common contains shared constants and sentinel errors used across
// the inspection store and the asset cache agent.
package common

// DefaultDatabaseFile is the file name of the local inspection database.
const DefaultDatabaseFile = "manhole.db"

// DefaultCacheVersion names the asset snapshot shipped with the application.
const DefaultCacheVersion = "manhole-pro-v1"

// DefaultAssetsFile is the file name of the asset cache agent's snapshot
// database.
const DefaultAssetsFile = "assets.db"
