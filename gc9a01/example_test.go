// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gc9a01_test

import (
	"context"
	"fmt"
	"log"

	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01"
	"github.com/minyiky/lvgl-esp32-gc9a01/gc9a01sim"
	"github.com/minyiky/lvgl-esp32-gc9a01/periphhost"
	"github.com/minyiky/lvgl-esp32-gc9a01/stripe"
)

func Example() {
	// Open the first available SPI port and initialize periph.
	h, err := periphhost.Open(nil)
	if err != nil {
		log.Fatal(err)
	}

	// The renderer converts images to the panel format.
	r := stripe.New()
	dev, err := gc9a01.New(h, r, &gc9a01.DefaultOpts)
	if err != nil {
		log.Fatalf("Failed to initialize driver: %v", err)
	}
	defer dev.Halt()

	img, err := stripe.TestCard(240, 240, "Hello from periph!", 0)
	if err != nil {
		log.Fatal(err)
	}
	if err := r.Draw(context.Background(), img); err != nil {
		log.Fatal(err)
	}
}

func Example_simulator() {
	h := gc9a01sim.New(nil)
	r := stripe.New()
	opts := gc9a01.DefaultOpts
	opts.Initialize = false
	dev, err := gc9a01.New(h, r, &opts)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()
	fmt.Println(dev)

	ctx := context.Background()
	if err := dev.InitContext(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println(dev)

	img, err := stripe.TestCard(240, 240, "", 0)
	if err != nil {
		log.Fatal(err)
	}
	if err := r.Draw(ctx, img); err != nil {
		log.Fatal(err)
	}
	if err := r.Wait(ctx); err != nil {
		log.Fatal(err)
	}
	fmt.Println(h.Panel().At(15, 20))
	// Output:
	// GC9A01{240x240, Unpowered}
	// GC9A01{240x240, Ready}
	// {255 255 255 255}
}
