package bls12381

// Published G2 constants of the deployed protocol. They were hashed to the
// curve from one public seed with a distinct tag each, and are pinned here
// so that every implementation uses the same bytes.
const (
	H0Hex = "a5acbe8bdb762cf7b4bfa9171b9ffa23b6ed710b290280b271a0258e285354aac338bb9e5a9ee41b4454e4c410f40eea16c82b493986bfc754aa789e1408b2b526f8b92e9ddcd4eee1a6c4daa84d561a6ceb452afc4559fe81a1c7f3f26715db"
	HAHex = "a1dcce801cd2950dcad45faa854382bbe39f5f84d1855ed4ad2d5d2a8e94b67b2d126fbafbcd1a4f15b82f793f5c8cc80d5638f2260b3e3d0c3bcf1b45f7cc0f72f5a8d7a6d6e6615f7d72ab7e70dcbb56d1fefdb72c65f7bc5f073373cc99a7"
	HBHex = "a8a54abec2b6379d1aa238de61a783f704255e14cd02c8385e9bb2e648e33ea9fc271a62ff5669defdc59cfee7414102180a831c7be88ea85bc81e0ec3a929bf63766ede414ee0aac2b66a3e7e20c631453aa11aa20eb7945349e4df933dc7dd"
	HCHex = "872fd1490d93c0895b3dd1cef1874eca2457b1615e0a5a9cee4ddf14da09a0d51987ce3806d2e87f33139b261ee26ce00e71c41a7c75c158896db6a477e8b4b10b40bda60f8a0a7e0aa7e2a3b3652c9000508a15a24c9f5b3c4cfb84ef72c9a6"
)

var h0, ha, hb, hc G2

func init() {
	h0 = mustG2(H0Hex)
	ha = mustG2(HAHex)
	hb = mustG2(HBHex)
	hc = mustG2(HCHex)
}

func mustG2(s string) G2 {
	p, err := G2FromHex(s)
	if err != nil {
		panic(err)
	}
	return p
}

// H0 keys the pairing that produces every hop secret.
func H0() G2 { return h0 }

// HA is raised to H(r1) in the level consistency check.
func HA() G2 { return ha }

// HB is raised to H(r1 || r2 || assetId) in the level consistency check.
func HB() G2 { return hb }

// HC only appears in the entry level consistency check.
func HC() G2 { return hc }

// P is the G2 generator used by the decryption witness relation.
func P() G2 { return G2Generator() }
