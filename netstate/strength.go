package netstate

// StrengthLevel maps a signal strength in percent to one of levels display
// buckets. Bucket 0 holds strengths below 5; the rest of the range is split
// linearly. For five levels this yields the nmcli staircase
// 0-4, 5-29, 30-54, 55-79, 80-100. Above 20 levels the top bucket becomes
// unreachable.
func StrengthLevel(strength uint8, levels int) int {
	if levels < 2 {
		return 0
	}
	s := min(int(strength), 100)
	if s < 5 {
		return 0
	}
	return (s-5)*(levels-1)/100 + 1
}
