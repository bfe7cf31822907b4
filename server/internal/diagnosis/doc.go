// Package diagnosis scores the health of the four tracked subsystems
// (toxicity prediction, turntable adsorption, MBR membrane, carbon
// regeneration) and assembles an aggregate diagnostic report.
//
// Each subsystem starts at 100 and loses fixed deductions per violated
// condition, clamped to ≥0; the overall score is the arithmetic mean of the
// available subsystem scores. A nil input section marks its subsystem
// unavailable instead of failing the whole evaluation.
package diagnosis
