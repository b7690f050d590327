// Package resource bounds the memory, concurrency and IO bandwidth that
// bloomdb spends on behalf of a caller.
//
// A Controller is shared by every filter and catalog configured with it:
//
//   - Memory: bit buffers reserve their byte size before allocation. With a
//     limit set, a reservation that does not fit fails instead of blocking,
//     and filter construction reports an allocation error.
//   - Workers: Catalog.LoadAll runs at most MaxBackgroundWorkers loads at once.
//   - IO: catalog reads and writes wait on a token bucket of
//     IOLimitBytesPerSec bytes.
//
// A nil *Controller is valid and imposes no limits.
package resource
