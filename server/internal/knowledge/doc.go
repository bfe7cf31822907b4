// Package knowledge holds the read-only expert-rule tables and equipment
// parameter sheets the controllers consult.
//
// Defaults() returns the compiled-in pilot-plant knowledge; Load(path)
// overlays an optional YAML file on top of the defaults so thresholds can be
// tuned without a rebuild. The store is immutable after construction and
// therefore safe for concurrent lookups without locking.
//
// Lookup API:
//
//	Rule(category, name)            — one expert-rule entry (Params map)
//	RuleValue(category, name, key, fallback)
//	Equipment(name)                 — one equipment sheet
//	EquipmentParam(name, key, fallback)
//	PLCVariables()                  — the PLC variable sheet (for the API)
package knowledge
