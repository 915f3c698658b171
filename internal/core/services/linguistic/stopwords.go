package linguistic

// turkishStopwords are function words and high-frequency particles that
// carry no discriminative value for downstream models.
var turkishStopwords = []string{
	// Conjunctions
	"ama", "ancak", "ve", "veya", "ya", "yahut", "ile", "ki", "çünkü", "fakat",
	"lakin", "oysa", "halbuki", "hem", "de", "da", "ise", "eğer", "yani",
	// Question particles
	"mı", "mi", "mu", "mü", "acaba",
	// Pronouns
	"ben", "sen", "o", "biz", "siz", "onlar", "bu", "şu", "bunlar", "şunlar",
	"kim", "ne", "hangi", "kendi", "biri", "birkaç", "birşey", "şey", "hepsi",
	// Postpositions
	"için", "gibi", "kadar", "göre", "sonra", "önce", "doğru", "karşı",
	// Adverbs and quantifiers
	"çok", "az", "daha", "en", "her", "hiç", "hep", "tüm", "bazı", "belki",
	"sanki", "aslında", "defa", "kez", "diye", "nasıl", "neden", "niçin",
	"niye", "nerede", "nerde", "nereye", "şimdi", "zaten",
}

// DefaultStopwords returns a copy of the built-in Turkish stopword list
func DefaultStopwords() []string {
	out := make([]string, len(turkishStopwords))
	copy(out, turkishStopwords)
	return out
}
