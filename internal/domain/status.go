package domain

import "fmt"

// Status is the processing lifecycle state of a FileRecord.
//
// The authoritative store only ever holds the forward chain
// uploaded -> parsing -> chunking -> embedding -> complete, with failed
// reachable from any state. StatusUnknown exists purely on the front-end
// tier as a projection fallback and is never written authoritatively.
type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusParsing   Status = "parsing"
	StatusChunking  Status = "chunking"
	StatusEmbedding Status = "embedding"
	StatusComplete  Status = "complete"
	StatusFailed    Status = "failed"
	StatusUnknown   Status = "unknown"
)

var statusRank = map[Status]int{
	StatusUploaded:  0,
	StatusParsing:   1,
	StatusChunking:  2,
	StatusEmbedding: 3,
	StatusComplete:  4,
}

// Rank reports the position of s on the forward lifecycle chain.
// failed and unknown are off-chain and report -1.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// Terminal reports whether s is an end state the worker will never move past.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

func (s Status) Valid() bool {
	switch s {
	case StatusUploaded, StatusParsing, StatusChunking, StatusEmbedding,
		StatusComplete, StatusFailed, StatusUnknown:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}
