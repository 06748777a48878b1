// Package extract turns component binaries into descriptors.
//
// Three backends implement wasmcomposer.Extractor:
//
//   - Structural parses binaries directly: component-model binaries yield
//     their instance imports/exports, core modules are compiled with wazero
//     to read real function signatures.
//   - Tool shells out to wasm-tools and decodes its JSON output, giving the
//     highest-fidelity WIT view when the tool is installed.
//   - Convention never fails; it synthesizes a plausible descriptor from the
//     file name alone, for setups with no real backend wired up yet.
//
// Chain composes backends into a fallback ladder; NewDefaultChain is the
// usual Tool -> Structural -> Convention order.
//
// All backends fail per file, never per scan. Direction is fixed here, at
// the model boundary; nothing downstream re-derives it.
package extract
