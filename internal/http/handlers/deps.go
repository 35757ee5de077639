package handlers

import (
	"ruletapromo/internal/campaign"
	"ruletapromo/internal/config"
	"ruletapromo/internal/services"
)

type Deps struct {
	Game  *GameHandler
	Admin *AdminHandler
}

func NewDeps(api *campaign.Client, cfg config.Config) *Deps {
	reg := services.NewRegistrationService(api)
	board := services.NewStoreBoard(api)

	return &Deps{
		Game:  &GameHandler{Reg: reg},
		Admin: &AdminHandler{Board: board, BaseURL: cfg.BaseURL},
	}
}
