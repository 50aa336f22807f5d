package lobby

import (
	"github.com/andre-estevam-brainweb/daas-core/internal/dota"
	"github.com/andre-estevam-brainweb/daas-core/internal/store"
)

// lobbyOptions resolves the stored lobby settings into the full option set
// the coordinator expects.
func lobbyOptions(lobby *store.Lobby, settings store.Settings) dota.LobbyOptions {
	return dota.LobbyOptions{
		GameName:        lobby.Name,
		PassKey:         lobby.Password,
		ServerRegion:    serverRegion(lobby.Server),
		GameMode:        gameMode(lobby.GameMode),
		GameVersion:     0, // current
		SeriesType:      0, // none
		CMPick:          cmPick(lobby.RadiantHasFirstPick),
		AllowCheats:     false,
		FillWithBots:    false,
		AllowSpectating: true,
		AllChat:         false,
		TVDelay:         1, // 120s
		LeagueID:        settings.LeagueID,
	}
}

func serverRegion(s store.Server) dota.ServerRegion {
	switch s {
	case store.ServerUSWest:
		return dota.RegionUSWest
	case store.ServerUSEast:
		return dota.RegionUSEast
	case store.ServerLuxembourg:
		return dota.RegionEurope
	case store.ServerKorea:
		return dota.RegionKorea
	case store.ServerSingapore:
		return dota.RegionSingapore
	case store.ServerDubai:
		return dota.RegionDubai
	case store.ServerAustralia:
		return dota.RegionAustralia
	case store.ServerStockholm:
		return dota.RegionStockholm
	case store.ServerAustria:
		return dota.RegionAustria
	case store.ServerBrazil:
		return dota.RegionBrazil
	case store.ServerSouthAfrica:
		return dota.RegionSouthAfrica
	case store.ServerPWTelecomShanghai:
		return dota.RegionPWTelecomShanghai
	case store.ServerPWUnicom:
		return dota.RegionPWUnicom
	case store.ServerChile:
		return dota.RegionChile
	case store.ServerPeru:
		return dota.RegionPeru
	case store.ServerIndia:
		return dota.RegionIndia
	case store.ServerPWTelecomGuangzhou:
		return dota.RegionPWTelecomGuangzhou
	case store.ServerPWTelecomZhejiang:
		return dota.RegionPWTelecomZhejiang
	case store.ServerJapan:
		return dota.RegionJapan
	case store.ServerPWTelecomWuhan:
		return dota.RegionPWTelecomWuhan
	default:
		return dota.RegionUnspecified
	}
}

func gameMode(m store.GameMode) dota.GameMode {
	switch m {
	case store.ModeAllPick:
		return dota.ModeAllPick
	case store.ModeAllDraft:
		return dota.ModeAllDraft
	case store.ModeCaptainsMode:
		return dota.ModeCaptainsMode
	case store.ModeRandomDraft:
		return dota.ModeRandomDraft
	case store.ModeSingleDraft:
		return dota.ModeSingleDraft
	case store.ModeAllRandom:
		return dota.ModeAllRandom
	case store.ModeCaptainsDraft:
		return dota.ModeCaptainsDraft
	case store.ModeAbilityDraft:
		return dota.ModeAbilityDraft
	case store.ModeOneVsOneMid:
		return dota.ModeOneVsOneMid
	case store.ModeTurbo:
		return dota.ModeTurbo
	default:
		return dota.ModeAllPick
	}
}

func cmPick(radiantFirst bool) dota.CMPick {
	if radiantFirst {
		return dota.CMPickRadiant
	}
	return dota.CMPickDire
}
