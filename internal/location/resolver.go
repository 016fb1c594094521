package location

import (
	"sort"
	"strings"

	"github.com/akozadaev/go_es_listing_engine/internal/models"
)

// minFuzzyLength минимальная длина запроса для нечеткого поиска.
const minFuzzyLength = 3

// Resolver разрешает названия по справочнику. Безопасен для конкурентного использования.
type Resolver struct {
	index *Index
}

// NewResolver создает резолвер поверх готового справочника.
func NewResolver(index *Index) *Resolver {
	return &Resolver{index: index}
}

// Index возвращает справочник резолвера.
func (r *Resolver) Index() *Index {
	return r.index
}

// Resolve ищет локацию по тексту. Уровни сопоставления: точное имя в пределах scope,
// точное имя любого типа, псевдоним, вхождение подстроки. Первый уровень с совпадениями
// определяет ответ; несколько совпадений дают Ambiguous, резолвер никогда не угадывает.
func (r *Resolver) Resolve(text string, scope models.LocationType) models.LocationResolution {
	q := NormalizeName(text)
	res := models.LocationResolution{Kind: models.NotFound, Query: text}
	if q == "" {
		return res
	}

	tiers := []func() []models.LocationEntity{
		func() []models.LocationEntity {
			if scope == "" {
				return nil
			}
			return r.index.collect(r.index.byName[q], scope)
		},
		func() []models.LocationEntity {
			return r.index.collect(r.index.byName[q], "")
		},
		func() []models.LocationEntity {
			matches := r.index.collect(r.index.byAlias[q], scope)
			if len(matches) == 0 && scope != "" {
				matches = r.index.collect(r.index.byAlias[q], "")
			}
			return matches
		},
		func() []models.LocationEntity {
			return r.fuzzy(q, scope)
		},
	}

	for _, tier := range tiers {
		matches := tier()
		switch len(matches) {
		case 0:
			continue
		case 1:
			res.Kind = models.Resolved
			res.Entity = &matches[0]
			return res
		default:
			rank(matches)
			res.Kind = models.Ambiguous
			res.Candidates = matches
			return res
		}
	}

	return res
}

// fuzzy ищет вхождение запроса в компактное имя без шумовых слов и пробелов.
// При заданном scope сначала ограничивается им.
func (r *Resolver) fuzzy(q string, scope models.LocationType) []models.LocationEntity {
	needle := compactName(q)
	if needle == "" {
		needle = strings.ReplaceAll(q, " ", "")
	}
	if len(needle) < minFuzzyLength {
		return nil
	}

	var positions []int
	for i, name := range r.index.compact {
		if strings.Contains(name, needle) {
			positions = append(positions, i)
		}
	}

	if scope != "" {
		if scoped := r.index.collect(positions, scope); len(scoped) > 0 {
			return scoped
		}
	}
	return r.index.collect(positions, "")
}

// ResolveStreet ищет улицу в пределах города (или во всех городах, если cityID пуст).
// Сначала точное совпадение нормализованного имени, затем частичное.
func (r *Resolver) ResolveStreet(name, cityID string) models.StreetResolution {
	q := NormalizeStreet(name)
	res := models.StreetResolution{Kind: models.NotFound, Query: name}
	if q == "" {
		return res
	}

	var exact, partial []models.StreetSegment
	for _, s := range r.index.streets {
		if cityID != "" && s.CityID != cityID {
			continue
		}
		switch {
		case s.NormalizedName == q:
			exact = append(exact, s)
		case containsWords(s.NormalizedName, q):
			partial = append(partial, s)
		}
	}

	for _, matches := range [][]models.StreetSegment{exact, partial} {
		switch len(matches) {
		case 0:
			continue
		case 1:
			res.Kind = models.Resolved
			res.Street = &matches[0]
			return res
		default:
			sort.SliceStable(matches, func(i, j int) bool {
				if matches[i].CityID != matches[j].CityID {
					return matches[i].CityID < matches[j].CityID
				}
				return matches[i].NormalizedName < matches[j].NormalizedName
			})
			res.Kind = models.Ambiguous
			res.Candidates = matches
			return res
		}
	}

	return res
}

// containsWords проверяет, что все слова запроса идут подряд в названии.
func containsWords(name, q string) bool {
	return strings.Contains(" "+name+" ", " "+q+" ")
}
