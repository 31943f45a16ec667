// Package menu holds the time-of-day logic for meal-period slots and the
// ordering of menu categories relative to the current slot.
package menu

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"qrmenu/internal/models"
)

const minutesPerDay = 24 * 60

// noUpcomingSlot sorts a category with no future slot start today behind
// every category that has one.
const noUpcomingSlot = minutesPerDay + 1

// parseClock parses an "HH:MM" clock time into minutes since midnight.
func parseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("malformed clock time %q", clock)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("malformed clock time %q", clock)
	}
	return hours*60 + minutes, nil
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// slotContains reports whether the slot's [start, end) window contains the
// given minutes-since-midnight. An end earlier than the start encodes a
// window wrapping past midnight.
func slotContains(start, end, m int) bool {
	if start == end {
		return false
	}
	if end < start {
		return m >= start || m < end
	}
	return m >= start && m < end
}

// CurrentSlot returns the slot whose window contains now. Slots with
// malformed clock times are skipped with a warning, never fatal. Returns
// false when no slot matches.
func CurrentSlot(slots []models.Slot, now time.Time) (models.Slot, bool) {
	m := minutesOfDay(now)
	for _, slot := range slots {
		start, err := parseClock(slot.Start)
		if err != nil {
			log.Printf("menu: skipping slot %q: %v", slot.Name, err)
			continue
		}
		end, err := parseClock(slot.End)
		if err != nil {
			log.Printf("menu: skipping slot %q: %v", slot.Name, err)
			continue
		}
		if slotContains(start, end, m) {
			return slot, true
		}
	}
	return models.Slot{}, false
}

// categoryRank captures the sort tiers of one category. Categories compare
// lexicographically over the fields in order.
type categoryRank struct {
	complementary int // non-complementary first
	inactive      int // active in the current slot first
	nextStart     int // minutes until the next slot start later today
	sortOrder     int // explicit order, default 9999
}

func rankCategory(c *models.Category, nowMinutes int) categoryRank {
	rank := categoryRank{
		nextStart: noUpcomingSlot,
		sortOrder: c.EffectiveSortOrder(),
	}
	if c.Complementary {
		rank.complementary = 1
	}

	active := false
	for _, slot := range c.Slots {
		start, err := parseClock(slot.Start)
		if err != nil {
			log.Printf("menu: skipping slot %q on category %q: %v", slot.Name, c.Name, err)
			continue
		}
		end, err := parseClock(slot.End)
		if err != nil {
			log.Printf("menu: skipping slot %q on category %q: %v", slot.Name, c.Name, err)
			continue
		}
		if slotContains(start, end, nowMinutes) {
			active = true
			continue
		}
		if start > nowMinutes && start-nowMinutes < rank.nextStart {
			rank.nextStart = start - nowMinutes
		}
	}
	if active {
		rank.nextStart = 0
	} else {
		rank.inactive = 1
	}
	return rank
}

func (a categoryRank) less(b categoryRank) bool {
	if a.complementary != b.complementary {
		return a.complementary < b.complementary
	}
	if a.inactive != b.inactive {
		return a.inactive < b.inactive
	}
	if a.nextStart != b.nextStart {
		return a.nextStart < b.nextStart
	}
	return a.sortOrder < b.sortOrder
}

// SortCategories orders categories for display: non-complementary before
// complementary, then categories active in the current slot, then inactive
// ones by how soon their next slot starts today (none today sorts last),
// then the explicit sort order. The sort is stable.
func SortCategories(categories []models.Category, now time.Time) {
	nowMinutes := minutesOfDay(now)
	type ranked struct {
		category models.Category
		rank     categoryRank
	}
	rankedCategories := make([]ranked, len(categories))
	for i := range categories {
		rankedCategories[i] = ranked{
			category: categories[i],
			rank:     rankCategory(&categories[i], nowMinutes),
		}
	}
	sort.SliceStable(rankedCategories, func(i, j int) bool {
		return rankedCategories[i].rank.less(rankedCategories[j].rank)
	})
	for i := range rankedCategories {
		categories[i] = rankedCategories[i].category
	}
}
