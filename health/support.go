// ABOUTME: Support sub-score for the health engine
// ABOUTME: Returns the configured placeholder until ticket data is tracked
package health

// support returns the configured placeholder score. Ticket data is not
// tracked, so this sub-score never raises risks.
func (e *Engine) support() component {
	return component{score: clamp(e.cfg.SupportScore)}
}
