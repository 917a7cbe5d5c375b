package artifact

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"beautyrec/internal/domain"
)

// productRow is one exported row of the product table.
type productRow struct {
	ItemReviewed   string    `json:"item_reviewed"`
	SentimentScore float64   `json:"sentiment_score"`
	Embedding      []float32 `json:"embedding"`
}

// maxLineSize bounds a single JSON Lines record; embeddings make rows long.
const maxLineSize = 64 << 20

// DecodeProducts parses the product table, either a JSON array or JSON Lines,
// preserving row order.
func DecodeProducts(data []byte) ([]domain.Product, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("product table is empty")
	}

	var rows []productRow
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse product table: %w", err)
		}
	} else {
		sc := bufio.NewScanner(bytes.NewReader(trimmed))
		sc.Buffer(make([]byte, 0, 1<<20), maxLineSize)
		line := 0
		for sc.Scan() {
			line++
			text := bytes.TrimSpace(sc.Bytes())
			if len(text) == 0 {
				continue
			}
			var row productRow
			if err := json.Unmarshal(text, &row); err != nil {
				return nil, fmt.Errorf("failed to parse product table line %d: %w", line, err)
			}
			rows = append(rows, row)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read product table: %w", err)
		}
	}

	products := make([]domain.Product, len(rows))
	for i, r := range rows {
		if r.ItemReviewed == "" {
			return nil, fmt.Errorf("product row %d has no item_reviewed", i)
		}
		products[i] = domain.Product{
			Index:          i,
			Name:           r.ItemReviewed,
			SentimentScore: r.SentimentScore,
			Embedding:      r.Embedding,
		}
	}
	return products, nil
}
