// Package staging decides which customer notification a "send to customer"
// action dispatches, from the pre-increment send counter and whether any
// generated imagery exists.
package staging

type Variant string

const (
	// VariantInitial goes out while nothing has been generated yet; the
	// counter stays put so the first real batch still reads as round zero.
	VariantInitial Variant = "initial"
	// VariantFirstReady announces the first batch with imagery.
	VariantFirstReady Variant = "first_batch_ready"
	// VariantRevisionRound announces round N of revisions.
	VariantRevisionRound Variant = "revision_round"
)

type Decision struct {
	Variant  Variant
	NewCount int
	// Round is the revision round announced; only set for
	// VariantRevisionRound.
	Round int
}

// Decide maps (pre-increment counter, imagery present) to the notification
// variant and the counter's new value. The counter only advances when
// imagery exists at send time: a resend with nothing new generated does not
// advance the stage.
func Decide(sendCount int, hasImagery bool) Decision {
	if !hasImagery {
		return Decision{Variant: VariantInitial, NewCount: sendCount}
	}
	newCount := sendCount + 1
	if sendCount == 0 {
		return Decision{Variant: VariantFirstReady, NewCount: newCount}
	}
	return Decision{Variant: VariantRevisionRound, NewCount: newCount, Round: newCount - 1}
}
