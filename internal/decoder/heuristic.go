package decoder

import (
	"strconv"
	"strings"

	"github.com/feral-file/ledger-indexer/internal/domain"
)

// Heuristic scan of free-form log text. Used only when no tag-verified payload
// is found; results are always marked Heuristic.

var (
	// Matched case-insensitively; "mint" covers "Instruction: Mint", "mint_nft" and "Minting"
	mintMarkers    = []string{"mint"}
	buybackMarkers = []string{"buyback", "Buyback", "swap"}

	lamportKeys = []string{"lamports: ", "amount: ", "sol: "}
	tokenKeys   = []string{"tokens: ", "tokenamount: ", "token_amount: "}
)

// decodeHeuristic tries a mint first, then a buyback, over all log lines.
// accountKeys, when given, supply the minter (index 0) and mint (index 1) the logs omit.
func (d *eventDecoder) decodeHeuristic(logLines []string, accountKeys []string) (*domain.DecodedEvent, bool) {
	logLines = textLines(logLines)

	if containsAnyFold(logLines, mintMarkers) {
		if mint, ok := d.scanMint(logLines, accountKeys); ok {
			return &domain.DecodedEvent{Kind: domain.EventKindMint, Mint: mint, Heuristic: true}, true
		}
	}

	if containsAny(logLines, buybackMarkers) {
		if buyback, ok := d.scanBuyback(logLines); ok {
			return &domain.DecodedEvent{Kind: domain.EventKindBuyback, Buyback: buyback, Heuristic: true}, true
		}
	}

	return nil, false
}

func (d *eventDecoder) scanMint(logLines []string, accountKeys []string) (*domain.MintEvent, bool) {
	event := &domain.MintEvent{
		Name:      firstField(logLines, "name"),
		Symbol:    firstField(logLines, "symbol"),
		URI:       firstField(logLines, "uri"),
		Minter:    firstField(logLines, "minter"),
		Mint:      firstField(logLines, "mint"),
		Timestamp: d.clock.Now().UTC(),
	}
	if event.Name == "" || event.Symbol == "" {
		return nil, false
	}

	if event.Minter == "" && len(accountKeys) > 0 {
		event.Minter = accountKeys[0]
	}
	if event.Mint == "" && len(accountKeys) > 1 {
		event.Mint = accountKeys[1]
	}

	return event, true
}

func (d *eventDecoder) scanBuyback(logLines []string) (*domain.BuybackEvent, bool) {
	var (
		lamports, tokens       uint64
		haveLamports, haveToks bool
	)

	for _, line := range logLines {
		lower := strings.ToLower(line)
		if !haveLamports {
			lamports, haveLamports = numberAfter(lower, lamportKeys)
		}
		if !haveToks {
			tokens, haveToks = numberAfter(lower, tokenKeys)
		}
		if haveLamports && haveToks {
			return &domain.BuybackEvent{
				AmountLamports: lamports,
				TokenAmount:    tokens,
				Timestamp:      d.clock.Now().UTC(),
			}, true
		}
	}

	return nil, false
}

// textLines drops base64 program-data lines, which can spell a marker by chance
func textLines(lines []string) []string {
	text := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.HasPrefix(line, programDataPrefix) {
			text = append(text, line)
		}
	}
	return text
}

func containsAny(lines []string, markers []string) bool {
	for _, line := range lines {
		for _, marker := range markers {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}

func containsAnyFold(lines []string, markers []string) bool {
	for _, line := range lines {
		lower := strings.ToLower(line)
		for _, marker := range markers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// firstField returns the first value of field across lines, or ""
func firstField(lines []string, field string) string {
	for _, line := range lines {
		if value, ok := extractField(line, field); ok && value != "" {
			return value
		}
	}
	return ""
}

// extractField pulls field's value out of one line.
// Quoted forms (field: "v", field="v") end at the closing quote.
// Bare forms (field: v, field=v) end at the first quote, comma or space.
func extractField(line string, field string) (string, bool) {
	for _, pattern := range []string{field + `: "`, field + `="`} {
		if start := indexWord(line, pattern); start >= 0 {
			value := line[start+len(pattern):]
			if end := strings.IndexByte(value, '"'); end >= 0 {
				return value[:end], true
			}
			return value, true
		}
	}

	for _, pattern := range []string{field + ": ", field + "="} {
		if start := indexWord(line, pattern); start >= 0 {
			value := line[start+len(pattern):]
			if end := strings.IndexAny(value, `", `); end >= 0 {
				value = value[:end]
			}
			return value, true
		}
	}

	return "", false
}

// numberAfter returns the leading digits following the first matching key
func numberAfter(line string, keys []string) (uint64, bool) {
	for _, key := range keys {
		start := indexWord(line, key)
		if start < 0 {
			continue
		}
		rest := line[start+len(key):]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end == 0 {
			continue
		}
		n, err := strconv.ParseUint(rest[:end], 10, 64)
		if err != nil {
			continue
		}
		return n, true
	}
	return 0, false
}

// indexWord finds pattern in s where it is not preceded by an identifier character,
// so "amount: " does not match inside "tokenamount: "
func indexWord(s string, pattern string) int {
	offset := 0
	for {
		i := strings.Index(s[offset:], pattern)
		if i < 0 {
			return -1
		}
		i += offset
		if i == 0 || !isIdentByte(s[i-1]) {
			return i
		}
		offset = i + 1
	}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
