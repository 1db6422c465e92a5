package orders

type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusFinished Status = "finished"
)

// A status never regresses: draft -> sent -> finished, nothing else.
var validNext = map[Status]map[Status]bool{
	StatusDraft:    {StatusSent: true},
	StatusSent:     {StatusFinished: true},
	StatusFinished: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSent, StatusFinished:
		return true
	}
	return false
}
