// Package mutualledger implements the mutual-insurance ledger inside the
// insurance-core context.
//
// The module owns product fund custody (pooled/reserved buckets), policy
// coverage windows fed by premium receipts, peer-voted claim adjudication,
// and the hardened commit-then-transfer payout path. Business rules live in
// application/domain layers; infrastructure stays behind ports and adapters.
package mutualledger
