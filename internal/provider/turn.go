package provider

// Turn is a conversation reshaped for providers that take the system
// instruction, the prior history and the latest user input separately.
type Turn struct {
	// System is the first system message; empty when there is none.
	System  string
	History []Message
	Current string
}

// LastUserIndex returns the position of the most recent user message.
func LastUserIndex(msgs []Message) (int, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleUser {
			return i, true
		}
	}
	return -1, false
}

// SplitTurn builds a Turn from msgs. Only the first system message is used;
// later ones are dropped. History is every non-system message except the
// last. Current is empty when msgs holds no user message.
func SplitTurn(msgs []Message) Turn {
	var t Turn
	var seenSystem bool
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if !seenSystem {
				t.System = m.Content
				seenSystem = true
			}
			continue
		}
		rest = append(rest, m)
	}
	if len(rest) > 0 {
		t.History = rest[:len(rest)-1]
	} else {
		t.History = []Message{}
	}
	if i, ok := LastUserIndex(msgs); ok {
		t.Current = msgs[i].Content
	}
	return t
}
