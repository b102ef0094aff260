// Package models defines domain entities for the spotsnap backup service.
//
// The package contains two categories of types:
//
// 1. Snapshot schema: the fixed JSON document written by `snapshot create`
// and read by `restore`:
//   - [Snapshot] : top-level document (user, likedSongs, ownedPlaylists, followedPlaylists)
//   - [Playlist] / [FollowedPlaylist] : playlists with full track listings
//   - [Track] : track or episode entry, identified by ID for reconciliation
//
// Field names are camelCase and stable; snapshots written by older versions
// remain readable.
//
// 2. History records: rows persisted to SQLite by the repositories package:
//   - [SnapshotRecord] : one row per captured snapshot
//   - [RestoreRunRecord] : one row per restore run (including dry runs)
//
// Validation lives next to the schema. [Snapshot.Validate] walks the whole
// document so malformed input is rejected before any live mutation.
package models
