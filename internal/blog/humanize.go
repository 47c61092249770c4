// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blog

import (
	"time"

	"github.com/dustin/go-humanize"
)

// displayDateLayout is used once a post is two days old.
const displayDateLayout = "January 2, 2006"

var relMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "now", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "a minute %s", DivBy: 1},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "an hour %s", DivBy: 1},
	{D: 24 * time.Hour, Format: "%d hours %s", DivBy: time.Hour},
	{D: 48 * time.Hour, Format: "yesterday", DivBy: 1},
}

// RelativeTime renders t relative to now: "now", "a minute ago",
// "5 minutes ago", "an hour ago", "3 hours ago", "yesterday", and from two
// days on the date in loc. Timestamps more than a minute in the future are
// shown as a date too.
func RelativeTime(t, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	diff := now.Sub(t)
	if diff < -time.Minute || diff >= 48*time.Hour {
		return t.In(loc).Format(displayDateLayout)
	}
	if diff < 0 {
		return "now"
	}
	return humanize.CustomRelTime(t, now, "ago", "from now", relMagnitudes)
}
