/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import "errors"

// ErrInvalidConfiguration is returned (wrapped) when the cache can't be created with the provided parameters.
var ErrInvalidConfiguration = errors.New("invalid cache configuration")
