// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package persist stores workflow graphs durably and caches the current
// graph export. The Store writes named workflow records through GORM
// (sqlite, postgres, or mysql); the Cache keeps the latest export in
// Redis for fast restore on restart.
package persist
