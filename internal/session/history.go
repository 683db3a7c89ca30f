package session

// EstimateTokens estimates the token count of text. ASCII runes weigh a
// quarter token each and any other rune a full token.
func EstimateTokens(text string) int {
	weight := 0
	for _, r := range text {
		if r <= 127 {
			weight++
		} else {
			weight += 4
		}
	}
	return (weight + 3) / 4
}

// Window returns the most recent turns that fit both limits. A limit <= 0
// disables it. The stored history itself is never trimmed.
func Window(history []Turn, tokenLimit, messageLimit int) []Turn {
	if len(history) == 0 {
		return history
	}

	if messageLimit > 0 && len(history) > messageLimit {
		history = history[len(history)-messageLimit:]
	}
	if tokenLimit <= 0 {
		return history
	}

	total := 0
	for _, t := range history {
		total += t.TokenCount
	}
	for total > tokenLimit && len(history) > 0 {
		total -= history[0].TokenCount
		history = history[1:]
	}
	return history
}
