package adherence

// Bucket labels, highest range first.
const (
	Bucket90To100 = "90-100"
	Bucket80To89  = "80-89"
	Bucket70To79  = "70-79"
	Bucket60To69  = "60-69"
	BucketBelow60 = "<60"
)

// BucketOrder lists the bucket labels in display order.
var BucketOrder = []string{Bucket90To100, Bucket80To89, Bucket70To79, Bucket60To69, BucketBelow60}

// Distribution counts individual PDC-90 values per fixed range.
type Distribution struct {
	Buckets map[string]int `json:"buckets"`
	// Missing counts facts without a PDC-90 value; they are not bucketed.
	Missing int `json:"missing"`
}

// BucketCount pairs a bucket label with its count, for ordered output.
type BucketCount struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

// bucketFor assigns v to exactly one range. Lower edges are inclusive,
// matching Classify. Values above 100 fall in the top range; NaN fails
// every comparison and lands in the bottom range.
func bucketFor(v float64) string {
	switch {
	case v >= 90:
		return Bucket90To100
	case v >= 80:
		return Bucket80To89
	case v >= 70:
		return Bucket70To79
	case v >= 60:
		return Bucket60To69
	default:
		return BucketBelow60
	}
}

func newDistribution() Distribution {
	d := Distribution{Buckets: make(map[string]int, len(BucketOrder))}
	for _, b := range BucketOrder {
		d.Buckets[b] = 0
	}
	return d
}

// Bucket assigns each value to one of the five ranges.
// The bucket counts always sum to len(values).
func Bucket(values []float64) Distribution {
	d := newDistribution()
	for _, v := range values {
		d.Buckets[bucketFor(v)]++
	}
	return d
}

// DistributionFromFacts buckets the PDC-90 of each fact.
func DistributionFromFacts(facts []Fact) Distribution {
	values := make([]float64, 0, len(facts))
	missing := 0
	for _, f := range facts {
		if f.PDC90 == nil {
			missing++
			continue
		}
		values = append(values, *f.PDC90)
	}
	d := Bucket(values)
	d.Missing = missing
	return d
}

// Total returns the number of bucketed values.
func (d Distribution) Total() int {
	total := 0
	for _, n := range d.Buckets {
		total += n
	}
	return total
}

// Ordered returns the buckets in display order.
func (d Distribution) Ordered() []BucketCount {
	out := make([]BucketCount, 0, len(BucketOrder))
	for _, b := range BucketOrder {
		out = append(out, BucketCount{Range: b, Count: d.Buckets[b]})
	}
	return out
}
