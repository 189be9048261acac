// Package llm sends single-turn prompts to a hosted language model.
//
// Completer is the only thing callers see. Bedrock talks to Anthropic
// models through the Bedrock runtime InvokeModel API; OpenAI uses the chat
// completions API. NewCompleter picks one from configuration.
package llm
