// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gc9a01 drives a GC9A01 round TFT controller over SPI, streaming
// frame buffers to the panel with queued DMA transactions.
//
// The driver sits between a graphics framework that renders into the
// driver's DMA-capable buffers (see Compositor) and the platform's SPI, GPIO
// and memory primitives (see Host). The framework calls Flush for every
// dirty area; the driver sets the controller's address window, queues the
// pixel transfer and returns. When the transfer completes the host runs the
// driver's completion handler in interrupt context, which tells the framework
// that the buffer is free again.
//
// The framework is expected to render in the panel's native encoding,
// RGB565 with the high byte first. No conversion happens here.
//
// Datasheet
//
// https://www.buydisplay.com/download/ic/GC9A01A.pdf
package gc9a01
