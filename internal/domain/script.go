package domain

// DefaultScript is the interview the storefront widget runs. The ordering
// is the interrogation order; keys are the field names the answers are
// persisted under.
func DefaultScript() Script {
	return Script{
		{Prompt: "Hello! What's your name?", Key: "name"},
		{Prompt: "What brings you to our store today?", Key: "purpose"},
		{Prompt: "OK! What is your favorite product from our store?", Key: "product"},
		{Prompt: "OK! Do you have any message for us?", Key: "message"},
		{Prompt: "Nice to meet you! What's your mobile number?", Key: "mobile"},
	}
}
