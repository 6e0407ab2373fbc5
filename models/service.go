package models

import "time"

// ServiceRecord is one government service entry in the catalog (layanan MPP).
// All descriptive attributes are optional; whatever is present is folded into
// the composed narrative that gets embedded.
type ServiceRecord struct {
	ID                    string     `db:"id" json:"id"`
	JenisInstansi         *string    `db:"jenis_instansi" json:"jenis_instansi,omitempty"`
	NamaLayanan           *string    `db:"nama_layanan" json:"nama_layanan,omitempty"`
	DeskripsiSingkat      *string    `db:"deskripsi_singkat" json:"deskripsi_singkat,omitempty"`
	InstansiPenyelenggara *string    `db:"instansi_penyelenggara" json:"instansi_penyelenggara,omitempty"`
	Persyaratan           *string    `db:"persyaratan" json:"persyaratan,omitempty"`
	WaktuPenyelesaian     *string    `db:"waktu_penyelesaian" json:"waktu_penyelesaian,omitempty"`
	TarifPelayanan        *string    `db:"tarif_pelayanan" json:"tarif_pelayanan,omitempty"`
	Prosedur              *string    `db:"prosedur" json:"prosedur,omitempty"`
	ProdukLayanan         *string    `db:"produk_layanan" json:"produk_layanan,omitempty"`
	Pengaduan             *string    `db:"pengaduan" json:"pengaduan,omitempty"`
	DasarHukum            *string    `db:"dasar_hukum" json:"dasar_hukum,omitempty"`
	SaranaPrasarana       *string    `db:"sarana_prasarana" json:"sarana_prasarana,omitempty"`
	KomponenPelaksana     *string    `db:"komponen_pelaksana" json:"komponen_pelaksana,omitempty"`
	PengawasanInternal    *string    `db:"pengawasan_internal" json:"pengawasan_internal,omitempty"`
	JumlahPelaksana       *string    `db:"jumlah_pelaksana" json:"jumlah_pelaksana,omitempty"`
	JaminanPelayanan      *string    `db:"jaminan_pelayanan" json:"jaminan_pelayanan,omitempty"`
	JaminanKeamanan       *string    `db:"jaminan_keamanan" json:"jaminan_keamanan,omitempty"`
	CreatedAt             *time.Time `db:"created_at" json:"created_at,omitempty"`
}

// ServiceInput carries the writable attributes for create/update.
type ServiceInput struct {
	JenisInstansi         *string `db:"jenis_instansi" json:"jenis_instansi,omitempty"`
	NamaLayanan           *string `db:"nama_layanan" json:"nama_layanan,omitempty"`
	DeskripsiSingkat      *string `db:"deskripsi_singkat" json:"deskripsi_singkat,omitempty"`
	InstansiPenyelenggara *string `db:"instansi_penyelenggara" json:"instansi_penyelenggara,omitempty"`
	Persyaratan           *string `db:"persyaratan" json:"persyaratan,omitempty"`
	WaktuPenyelesaian     *string `db:"waktu_penyelesaian" json:"waktu_penyelesaian,omitempty"`
	TarifPelayanan        *string `db:"tarif_pelayanan" json:"tarif_pelayanan,omitempty"`
	Prosedur              *string `db:"prosedur" json:"prosedur,omitempty"`
	ProdukLayanan         *string `db:"produk_layanan" json:"produk_layanan,omitempty"`
	Pengaduan             *string `db:"pengaduan" json:"pengaduan,omitempty"`
	DasarHukum            *string `db:"dasar_hukum" json:"dasar_hukum,omitempty"`
	SaranaPrasarana       *string `db:"sarana_prasarana" json:"sarana_prasarana,omitempty"`
	KomponenPelaksana     *string `db:"komponen_pelaksana" json:"komponen_pelaksana,omitempty"`
	PengawasanInternal    *string `db:"pengawasan_internal" json:"pengawasan_internal,omitempty"`
	JumlahPelaksana       *string `db:"jumlah_pelaksana" json:"jumlah_pelaksana,omitempty"`
	JaminanPelayanan      *string `db:"jaminan_pelayanan" json:"jaminan_pelayanan,omitempty"`
	JaminanKeamanan       *string `db:"jaminan_keamanan" json:"jaminan_keamanan,omitempty"`
}

// ServiceEmbedding pairs a service with its composed content and unit vector.
// One row per service; recreated whenever the source record changes.
type ServiceEmbedding struct {
	ServiceID string    `db:"service_id" json:"service_id"`
	Content   string    `db:"content" json:"content"`
	Embedding []float32 `db:"embedding" json:"embedding"`
}

// SearchResult is one retrieved snippet: the composed content of a service
// plus its cosine similarity to the query, as returned by the database.
type SearchResult struct {
	ServiceID  string  `db:"service_id" json:"service_id"`
	Content    string  `db:"content" json:"content"`
	Similarity float64 `db:"similarity" json:"similarity"`
}
