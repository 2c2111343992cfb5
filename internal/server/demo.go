package server

import "lobby-server/internal/game"

// RunDemo walks a registry through the sample lobby: two rooms, three
// players, one started game.
func RunDemo(rooms *game.Registry) {
	battle := rooms.CreateRoom("Battle Room", 4)
	casual := rooms.CreateRoom("Casual Game", 2)

	battle.AddPlayer(game.NewPlayer(1, "Alice"))
	battle.AddPlayer(game.NewPlayer(2, "Bob"))
	casual.AddPlayer(game.NewPlayer(3, "Charlie"))

	rooms.ListRooms()
	battle.StartGame()
	rooms.ListRooms()
}
