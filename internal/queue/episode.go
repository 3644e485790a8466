package queue

import (
	"regexp"
	"strconv"
)

var (
	// "Þáttur 3 af 12"
	numberOfCountPattern = regexp.MustCompile(`^\S+\s(\d+) af (\d+)`)
	// "3. kafli"; any single character may stand in for the dot, so
	// "3, kafli" counts too.
	chapterPattern = regexp.MustCompile(`^(\d+). kafli`)
)

// ParseEpisodeNumbering extracts the episode number and, when present, the
// episode count from an episode title. Either result is nil when the title
// does not carry it.
func ParseEpisodeNumbering(title string) (number, count *int) {
	if m := numberOfCountPattern.FindStringSubmatch(title); m != nil {
		n, errN := strconv.Atoi(m[1])
		c, errC := strconv.Atoi(m[2])
		if errN == nil && errC == nil {
			return &n, &c
		}
	}
	if m := chapterPattern.FindStringSubmatch(title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n, nil
		}
	}
	return nil, nil
}
