// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package inkyserver is a container for the packages that make up the Inky
// e-paper display server: color conversion, dithering, an image buffer
// model, bus and pin abstractions and the Inky driver core itself.
package inkyserver
