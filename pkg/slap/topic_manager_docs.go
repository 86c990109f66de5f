package slap

// TopicManagerDocumentation describes the SLAP topic manager for overlay
// operators and integrators.
const TopicManagerDocumentation = `# SLAP Topic Manager

**Protocol Name**: SLAP (Service Lookup Availability Protocol)
**Routing Topic**: ` + "`tm_slap`" + `

---

## Overview

The SLAP topic manager identifies admissible outputs in transactions submitted
under the ` + "`tm_slap`" + ` topic. An admissible output is a PushDrop token that
advertises a host providing a lookup service on the overlay network.

A **SLAP token** is a UTXO whose locking script embeds metadata binding an
identity key to a domain and a lookup service. The service name must carry
the ` + "`ls_`" + ` prefix, short for "lookup service."

---

## Requirements for a Valid SLAP Output

1. **PushDrop Fields**: Exactly five fields must be present:
   1. ` + "`\"SLAP\"`" + ` — the protocol identifier string.
   2. ` + "`identityKey`" + ` — the 33-byte compressed secp256k1 public key that owns this UTXO.
   3. ` + "`advertisedURI`" + ` — a URI describing where to reach the host (see BRC-101).
   4. ` + "`service`" + ` — the lookup service name. Must start with ` + "`ls_`" + ` and pass the BRC-87 naming checks.
   5. ` + "`signature`" + ` — a signature over the first four fields linking the identity key to the locking key.

2. **Signature Linkage**: the locking public key must be derivable from the
   identity key under the SLAP protocol, and the signature must verify over the
   preceding fields against that derived key.

3. **Advertised URI**: must be one of the URI forms contemplated by BRC-101
   (` + "`https://`" + `, ` + "`wss://`" + `, the ` + "`https+bsvauth...`" + ` custom schemes, or ` + "`js8c+bsvauth+smf:`" + `).
   Localhost URIs are rejected.

Outputs failing any check are skipped rather than causing the whole
transaction to be rejected.

---

## Tips

- **Field ordering matters**: SLAP, identityKey, advertisedURI, service, signature.
- **Exactly five fields**: more or fewer and the output is skipped.
- **Fund the token**: keep at least one satoshi on the output so the
  advertisement stays spendable and revocable.
`
