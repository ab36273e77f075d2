/*
Package objectstore implements the content-addressed object store the
controller reads and writes manifests, access-controller descriptors, and
per-store log entries through.

Every value passed to Write is encoded with the dag-cbor codec
(github.com/ipfs/go-ipld-cbor) and addressed by a sha2-256 multihash
(github.com/multiformats/go-multihash) wrapped into a CID by the encoder —
the same pairing the wider content-addressed storage ecosystem uses to
derive an object's identity from its bytes rather than a caller-assigned
key. The default implementation persists the raw dag-cbor bytes in a bbolt
file keyed by the CID's string form. Read parses every incoming hash with
github.com/ipfs/go-cid's cid.Decode before the lookup, since Sync hands it
hash strings a remote peer supplied.

onlyHash lets the manifest writer and the controller's determineAddress
compute an address without ever touching disk, matching the "simulate" path
described for Create/Open.
*/
package objectstore
