package services

import "errors"

// Rejection reasons returned by GameService. Messages are shown to players
// as-is, so they stay in the game's language.
//
// They are full sentences for display, hence capitalized (ST1005 does not apply).
//
//nolint:stylecheck
var (
	ErrAlreadyPlayed     = errors.New("Cet utilisateur a déjà participé au jeu")
	ErrDuplicateIdentity = errors.New("Cette identité a déjà participé au jeu")
	ErrInvalidInput      = errors.New("Données invalides")
	ErrStorage           = errors.New("Erreur de stockage")
	ErrGameClosed        = errors.New("Tous les lots ont été distribués, le jeu est terminé")
	ErrPrizeOutOfStock   = errors.New("Ce lot est épuisé, gain non attribué")
)
