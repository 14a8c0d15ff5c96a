package constants

import (
	"strings"
)

// Bucket is a coarse keyword family used to pre-partition line items before clustering.
type Bucket string

const (
	BucketVentilation Bucket = "ventilation"
	BucketElectrical  Bucket = "electrical"
	BucketPiping      Bucket = "piping"
	BucketFasteners   Bucket = "fasteners"
	BucketLabor       Bucket = "labor"
	BucketOther       Bucket = "other"
)

// BucketFamily pairs a bucket with the substrings that select it.
type BucketFamily struct {
	Bucket   Bucket
	Keywords []string
}

// bucketFamilies is ordered by priority: an item lands in the first family that matches.
// Keywords are lowercase substrings; Russian stems cover the estimates this system reads.
var bucketFamilies = []BucketFamily{
	{
		Bucket: BucketVentilation,
		Keywords: []string{
			"fan", "duct", "grille", "valve", "silencer", "damper", "diffuser",
			"вентилятор", "воздуховод", "решетка", "клапан", "шумоглушитель", "глушитель",
		},
	},
	{
		Bucket: BucketElectrical,
		Keywords: []string{
			"cable", "wire", "panel", "breaker", "socket", "switch", "luminaire", "lamp",
			"кабель", "провод", "щит", "автомат", "розетка", "выключатель", "светильник",
		},
	},
	{
		Bucket: BucketPiping,
		Keywords: []string{
			"pipe", "fitting", "tee", "elbow", "reducer", "plug",
			"труба", "фитинг", "тройник", "отвод", "переход", "заглушка",
		},
	},
	{
		Bucket: BucketFasteners,
		Keywords: []string{
			"bolt", "nut", "washer", "screw", "dowel", "anchor", "fastener",
			"болт", "гайка", "шайба", "саморез", "дюбель", "анкер", "крепеж",
		},
	},
	{
		Bucket: BucketLabor,
		Keywords: []string{
			"installation", "mounting", "dismantling", "commissioning", "labor", "labour",
			"монтаж", "установка", "демонтаж", "наладка", "пуско-наладка", "работы",
		},
	},
}

// BucketFamilies returns the keyword families in priority order.
func BucketFamilies() []BucketFamily {
	return bucketFamilies
}

// AllBuckets lists every bucket in priority order, "other" last.
func AllBuckets() []Bucket {
	out := make([]Bucket, 0, len(bucketFamilies)+1)
	for _, f := range bucketFamilies {
		out = append(out, f.Bucket)
	}
	return append(out, BucketOther)
}

// ClassifyName returns the first bucket whose keywords occur in the lowercased name.
func ClassifyName(name string) Bucket {
	normalized := strings.ToLower(name)
	for _, f := range bucketFamilies {
		for _, kw := range f.Keywords {
			if strings.Contains(normalized, kw) {
				return f.Bucket
			}
		}
	}
	return BucketOther
}
