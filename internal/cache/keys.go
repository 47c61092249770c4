// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

// Key names a cached aggregate. Only the constants below are used; the type
// keeps arbitrary strings from reaching the cache by accident.
type Key string

const (
	// KeyArchives holds published post counts per year and month.
	KeyArchives Key = "BlogArchives"
	// KeyCategories holds the category listing with post counts.
	KeyCategories Key = "BlogCategories"
	// KeyTags holds the tag listing with post counts.
	KeyTags Key = "BlogTags"
)

// BlogKeys lists every aggregate a post write can affect.
var BlogKeys = []Key{KeyArchives, KeyCategories, KeyTags}

// Unversioned is what Version reports when a key's generation cannot be
// read. SetIfVersion never stores under it.
const Unversioned int64 = -1
