package plan

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// The slot assigner is a pure function: the same (user, week, target,
// slot, candidates) tuple always selects the same recipe, across processes
// and restarts. All variability is carried in explicit parameters; there is
// no hidden RNG state.

// Linear-congruential style mixing constants. Distinct multipliers keep the
// day and meal coordinates from cancelling each other out.
const (
	dayMultiplier  = 1103515245
	mealMultiplier = 12345
)

// fold32 projects a UUID onto 32 bits by XOR-folding its four big-endian
// words. Stable across processes, unlike Go's map iteration or hash seeds.
func fold32(id uuid.UUID) uint32 {
	b := id[:]
	return binary.BigEndian.Uint32(b[0:4]) ^
		binary.BigEndian.Uint32(b[4:8]) ^
		binary.BigEndian.Uint32(b[8:12]) ^
		binary.BigEndian.Uint32(b[12:16])
}

// OrdinalDay returns the number of whole days between the Unix epoch and
// the given date at UTC midnight.
func OrdinalDay(t time.Time) int64 {
	return NormalizeDate(t).Unix() / (24 * 60 * 60)
}

// Seed combines the generation inputs into a 32-bit seed. The week ordinal
// and calorie target are shifted onto different bit ranges before the XOR
// so small values do not collide with the user projection.
func Seed(userID uuid.UUID, weekStart time.Time, targetKcal int) uint32 {
	return uint32((int64(fold32(userID)) ^ (OrdinalDay(weekStart) << 8) ^ (int64(targetKcal) << 1)) & 0xFFFFFFFF)
}

// PickIndex reduces the seed and slot coordinates to an index in [0, n).
func PickIndex(seed uint32, dayOffset, mealIndex, n int) int {
	if n <= 0 {
		return 0
	}
	x := (int64(seed) + int64(dayOffset+1)*dayMultiplier + int64(mealIndex+1)*mealMultiplier) & 0x7FFFFFFF
	return int(x % int64(n))
}

// WeekLockKeys derives the two 31-bit advisory lock keys that serialize
// writers on a (user, week) pair. Stable across processes; independent of
// any plan row so first-time generation is covered too.
func WeekLockKeys(userID uuid.UUID, weekStart time.Time) (uint32, uint32) {
	k1 := (fold32(userID) ^ 0xA5A5A5A5) & 0x7FFFFFFF
	k2 := uint32(OrdinalDay(weekStart)^0x5A5A5A5A) & 0x7FFFFFFF
	return k1, k2
}

// AssignSlot selects one recipe for a (day, meal) slot from the candidate
// list. Callers must pass candidates sorted by ascending UUID string; that
// ordering is the canonical tie-break contract, not an incidental detail.
func AssignSlot(seed uint32, dayOffset, mealIndex int, candidates []uuid.UUID) (uuid.UUID, error) {
	if len(candidates) == 0 {
		return uuid.Nil, ErrNoCandidates
	}
	return candidates[PickIndex(seed, dayOffset, mealIndex, len(candidates))], nil
}
