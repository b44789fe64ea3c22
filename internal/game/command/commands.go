// Package command provides the command registry, parser, and built-in command definitions.
package command

// Categories for organizing commands.
const (
	CategoryLobby   = "lobby"
	CategoryGame    = "game"
	CategoryAccount = "account"
	CategorySystem  = "system"
)

// Handler identifiers mapping commands to orchestrator operations.
const (
	HandlerStart       = "start"
	HandlerAccept      = "accept"
	HandlerDecline     = "decline"
	HandlerJoin        = "join"
	HandlerQuit        = "quit"
	HandlerDraw        = "draw"
	HandlerForfeit     = "forfeit"
	HandlerRegister    = "register"
	HandlerLeaderboard = "leaderboard"
	HandlerHelp        = "help"
	HandlerRules       = "rules"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command (lobby, game, account, system).
	Category string
	// Handler maps to the orchestrator operation.
	Handler string
}

// BuiltinCommands returns all built-in commands for the bot.
func BuiltinCommands() []Command {
	return []Command{
		// Lobby commands
		{Name: "start", Aliases: []string{"play"}, Help: "Start a game (start game with @name ...)", Category: CategoryLobby, Handler: HandlerStart},
		{Name: "accept", Aliases: []string{"yes"}, Help: "Accept a pending game invitation", Category: CategoryLobby, Handler: HandlerAccept},
		{Name: "decline", Aliases: []string{"no"}, Help: "Decline a pending game invitation", Category: CategoryLobby, Handler: HandlerDecline},
		{Name: "join", Aliases: nil, Help: "Join an open lobby in this topic", Category: CategoryLobby, Handler: HandlerJoin},
		{Name: "quit", Aliases: []string{"leave"}, Help: "Leave your current game or lobby", Category: CategoryLobby, Handler: HandlerQuit},

		// In-game commands
		{Name: "draw", Aliases: nil, Help: "Propose or accept a draw", Category: CategoryGame, Handler: HandlerDraw},
		{Name: "forfeit", Aliases: []string{"resign"}, Help: "Forfeit the current game", Category: CategoryGame, Handler: HandlerForfeit},

		// Account commands
		{Name: "register", Aliases: nil, Help: "Register so others can invite you", Category: CategoryAccount, Handler: HandlerRegister},
		{Name: "leaderboard", Aliases: []string{"top"}, Help: "Show the top five players", Category: CategoryAccount, Handler: HandlerLeaderboard},

		// System commands
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "rules", Aliases: nil, Help: "Show the rules of the game", Category: CategorySystem, Handler: HandlerRules},
	}
}
