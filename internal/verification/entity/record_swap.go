package entity

// RecordSwap replaces the stored record only if its version still equals
// ExpectedVersion. ExpectedVersion 0 means no record may exist yet. Effect,
// when set, is applied to the account in the same transaction.
type RecordSwap struct {
	ExpectedVersion int64
	Next            Record
	Effect          *AccountEffect
}
