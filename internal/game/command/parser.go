package command

import "strings"

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command and any filler.
	Args []string
	// RawArgs is the raw text after the command and filler.
	RawArgs string
}

// Parse splits a message line into a command and arguments. The filler
// word "game" directly after the command is dropped, so "start game with
// bob" and "start with bob" parse identically.
//
// Postcondition: Returns a ParseResult. If line is empty, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	// Split at first space for the command word
	spaceIdx := strings.IndexByte(line, ' ')
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToLower(line),
		}
	}

	cmd := strings.ToLower(line[:spaceIdx])
	rest := strings.TrimSpace(line[spaceIdx+1:])

	// Drop the "game" filler word ("start game", "start game with ...").
	lower := strings.ToLower(rest)
	if lower == "game" {
		rest = ""
	} else if strings.HasPrefix(lower, "game ") {
		rest = strings.TrimSpace(rest[len("game"):])
	}

	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: cmd,
		Args:    args,
		RawArgs: rest,
	}
}

// Targets extracts invitee names from start-command arguments, dropping
// the leading "with" keyword and any "@" mention prefixes.
//
// Postcondition: Returns the cleaned target names in order (may be empty).
func Targets(args []string) []string {
	if len(args) > 0 && strings.EqualFold(args[0], "with") {
		args = args[1:]
	}
	targets := make([]string, 0, len(args))
	for _, a := range args {
		a = strings.TrimPrefix(a, "@")
		a = strings.Trim(a, ",")
		if a != "" {
			targets = append(targets, a)
		}
	}
	return targets
}
