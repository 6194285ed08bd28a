package decoder

import (
	"encoding/base64"
	"strings"

	"github.com/feral-file/ledger-indexer/internal/adapter"
	"github.com/feral-file/ledger-indexer/internal/domain"
)

const (
	programDataPrefix = "Program data: "
	programLogPrefix  = "Program "
)

// Decoder extracts structured program events from transaction log lines
//
//go:generate mockgen -source=decoder.go -destination=../mocks/decoder.go -package=mocks -mock_names=Decoder=MockDecoder
type Decoder interface {
	// Decode returns the first event emitted by programID in logLines.
	// Tag-verified payloads win; the heuristic text scan only runs when none is found.
	Decode(logLines []string, programID string) (*domain.DecodedEvent, bool)

	// DecodeTransaction returns every event emitted by programID in tx.
	// The heuristic fallback yields at most one event and may use tx's account keys.
	DecodeTransaction(tx *domain.Transaction, programID string) []domain.DecodedEvent
}

// payloadDecoder decodes the bytes following an event tag
type payloadDecoder func(payload []byte) (*domain.DecodedEvent, error)

type eventDecoder struct {
	clock    adapter.Clock
	decoders map[domain.EventTag]payloadDecoder
}

// NewDecoder creates a decoder that recognizes the program's mint and buyback events
func NewDecoder(clock adapter.Clock) Decoder {
	return &eventDecoder{
		clock: clock,
		decoders: map[domain.EventTag]payloadDecoder{
			domain.MintEventTag:    decodeMintEvent,
			domain.BuybackEventTag: decodeBuybackEvent,
		},
	}
}

func (d *eventDecoder) Decode(logLines []string, programID string) (*domain.DecodedEvent, bool) {
	events := d.decodeTagged(logLines, programID, true)
	if len(events) > 0 {
		return &events[0], true
	}

	return d.decodeHeuristic(logLines, nil)
}

func (d *eventDecoder) DecodeTransaction(tx *domain.Transaction, programID string) []domain.DecodedEvent {
	if tx == nil {
		return nil
	}

	events := d.decodeTagged(tx.LogMessages, programID, false)
	if len(events) > 0 {
		return events
	}

	if event, ok := d.decodeHeuristic(tx.LogMessages, tx.AccountKeys); ok {
		return []domain.DecodedEvent{*event}
	}

	return nil
}

// decodeTagged walks the log lines keeping a stack of executing programs and
// decodes every program data line emitted while programID is on top.
func (d *eventDecoder) decodeTagged(logLines []string, programID string, firstOnly bool) []domain.DecodedEvent {
	var (
		events []domain.DecodedEvent
		stack  []string
	)

	for _, line := range logLines {
		encoded, isData := strings.CutPrefix(line, programDataPrefix)
		if !isData {
			if id, ok := parseInvoke(line); ok {
				stack = append(stack, id)
			} else if id, ok := parseExit(line); ok {
				// Pop up to and including the matching frame
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == id {
						stack = stack[:i]
						break
					}
				}
			}
			continue
		}

		if len(stack) == 0 || stack[len(stack)-1] != programID {
			continue
		}

		event, err := d.decodePayload(strings.TrimSpace(encoded))
		if err != nil || event == nil {
			continue
		}

		events = append(events, *event)
		if firstOnly {
			return events
		}
	}

	return events
}

// decodePayload decodes one base64 program data payload.
// It returns nil without error when the tag is not recognized.
func (d *eventDecoder) decodePayload(encoded string) (*domain.DecodedEvent, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(data) < domain.EVENT_TAG_LENGTH {
		return nil, nil
	}

	var tag domain.EventTag
	copy(tag[:], data[:domain.EVENT_TAG_LENGTH])

	decode, ok := d.decoders[tag]
	if !ok {
		return nil, nil
	}

	return decode(data[domain.EVENT_TAG_LENGTH:])
}

// parseInvoke matches "Program <id> invoke [<depth>]"
func parseInvoke(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, programLogPrefix)
	if !ok {
		return "", false
	}
	id, tail, ok := strings.Cut(rest, " ")
	if !ok || !strings.HasPrefix(tail, "invoke") {
		return "", false
	}
	return id, true
}

// parseExit matches "Program <id> success" and "Program <id> failed: ..."
func parseExit(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, programLogPrefix)
	if !ok {
		return "", false
	}
	id, tail, ok := strings.Cut(rest, " ")
	if !ok {
		return "", false
	}
	if tail == "success" || strings.HasPrefix(tail, "failed") {
		return id, true
	}
	return "", false
}
