package repository

import "errors"

var ErrNotUnlocked = errors.New("character is not unlocked")
