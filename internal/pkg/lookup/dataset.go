package lookup

// malaysia is the reference dataset of states, federal territories and their main towns.
var malaysia = map[string][]string{
	"Johor":           {"Batu Pahat", "Iskandar Puteri", "Johor Bahru", "Kluang", "Kulai", "Muar", "Pasir Gudang", "Segamat"},
	"Kedah":           {"Alor Setar", "Jitra", "Kulim", "Langkawi", "Sungai Petani"},
	"Kelantan":        {"Gua Musang", "Kota Bharu", "Pasir Mas", "Tanah Merah"},
	"Kuala Lumpur":    {"Bangsar", "Cheras", "Kepong", "Kuala Lumpur", "Mont Kiara", "Setapak", "Wangsa Maju"},
	"Labuan":          {"Victoria"},
	"Malacca":         {"Alor Gajah", "Ayer Keroh", "Jasin", "Malacca City"},
	"Negeri Sembilan": {"Nilai", "Port Dickson", "Seremban"},
	"Pahang":          {"Bentong", "Cameron Highlands", "Kuantan", "Temerloh"},
	"Penang":          {"Bayan Lepas", "Bukit Mertajam", "Butterworth", "George Town"},
	"Perak":           {"Ipoh", "Lumut", "Taiping", "Teluk Intan"},
	"Perlis":          {"Arau", "Kangar"},
	"Putrajaya":       {"Putrajaya"},
	"Sabah":           {"Kota Kinabalu", "Lahad Datu", "Sandakan", "Tawau"},
	"Sarawak":         {"Bintulu", "Kuching", "Miri", "Sibu"},
	"Selangor":        {"Ampang", "Cyberjaya", "Klang", "Petaling Jaya", "Puchong", "Rawang", "Seri Kembangan", "Shah Alam", "Subang Jaya"},
	"Terengganu":      {"Dungun", "Kemaman", "Kuala Terengganu"},
}
