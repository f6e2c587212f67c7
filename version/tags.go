package version

import (
	"context"
	"strconv"
	"strings"

	"github.com/cardfolio/go-cardfolio/pkg/types"
	"github.com/google/uuid"
)

// NextExtractionTag returns baseTag when no version of the card uses it yet,
// otherwise baseTag with a numeric suffix one past the highest in use. The
// unsuffixed tag counts as occurrence 1, so the first collision yields
// "baseTag-2".
func (r *Repository) NextExtractionTag(ctx context.Context, cardID uuid.UUID, baseTag string) (string, error) {
	var tags []string
	err := r.db.NewSelect().Model((*Record)(nil)).
		Column("tag").
		Where("card_id = ?", cardID).
		Where("tag LIKE ?", baseTag+"%").
		Scan(ctx, &tags)
	if err != nil {
		return "", types.DatabaseError(err, "listing version tags")
	}

	highest := 0
	for _, tag := range tags {
		if tag == baseTag {
			if highest < 1 {
				highest = 1
			}
			continue
		}
		suffix, ok := strings.CutPrefix(tag, baseTag+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}

	if highest == 0 {
		return baseTag, nil
	}
	return baseTag + "-" + strconv.Itoa(highest+1), nil
}
