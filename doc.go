// Package crater scores circular object detections (craters) against ground
// truth on image patches.
//
// # Quick Start
//
//	s := crater.New(crater.WithIoUThreshold(0.5))
//
//	score, err := s.ScorePatch(truth[0], pred[0])
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := s.Evaluate(ctx, truth, pred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("precision %.3f recall %.3f\n", report.Precision, report.Recall)
//
// # Metrics
//
// ScorePatch returns 1 minus the OSPA distance between one patch's true and
// predicted circles, found by exhaustive search (see package ospa). The
// dataset metrics (Precision, Recall, MADRadius, MADCenter) are built on a
// separate polynomial matcher (see package assign) that pairs circles to
// maximize total IoU per patch. The two matchers optimize different
// objectives and can disagree.
//
// A metric with a zero denominator returns an error wrapping
// ErrUndefinedMetric rather than 0.
//
// # Thread Safety
//
// Scorer is immutable after New and safe for concurrent use. Dataset
// operations evaluate patches concurrently, configurable via WithWorkers.
package crater
