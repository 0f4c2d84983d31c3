package notify

import (
	"fmt"
	"strings"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// FormatFlip renders a flip candidate as a notification title and message.
// Prices are grouped with commas the way players read coin amounts in game.
func FormatFlip(c domain.FlipCandidate) (title, message string) {
	title = fmt.Sprintf("Flip found: %s", c.ItemName)

	var b strings.Builder
	fmt.Fprintf(&b, "Buy price: %s coins\n", FormatCoins(c.Ask))
	fmt.Fprintf(&b, "Estimated value: %s coins\n", FormatCoins(c.ReferencePrice))
	fmt.Fprintf(&b, "Potential profit: %s coins (%.1f%%)\n", FormatCoins(c.Profit), c.ProfitPct*100)
	fmt.Fprintf(&b, "Listing: %s", c.ListingID)

	return title, b.String()
}

// FormatCoins formats a coin amount with comma thousands separators.
// Negative amounts keep the leading minus sign.
func FormatCoins(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	s := fmt.Sprintf("%d", v)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead == 0 {
			lead = 3
		}
		b.WriteString(s[:lead])
		for i := lead; i < len(s); i += 3 {
			b.WriteByte(',')
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}

	if neg {
		return "-" + s
	}
	return s
}
