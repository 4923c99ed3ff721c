package utils

import "sync"

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// This routine splits one dimension into c.ParallelDegree pieces, with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}

/*
ParallelFor runs f over [0,N) split into ParallelDegree contiguous buckets, one goroutine per bucket, and returns
when every bucket is done. A ParallelDegree of one or less runs f inline on the full range.
*/
func ParallelFor(ParallelDegree, N int, f func(bucket, kMin, kMax int)) {
	if ParallelDegree <= 1 || N <= 1 {
		f(0, 0, N)
		return
	}
	if ParallelDegree > N {
		ParallelDegree = N
	}
	var (
		pm = NewPartitionMap(ParallelDegree, N)
		wg sync.WaitGroup
	)
	for np := 0; np < pm.ParallelDegree; np++ {
		wg.Add(1)
		go func(np int) {
			defer wg.Done()
			kMin, kMax := pm.GetBucketRange(np)
			f(np, kMin, kMax)
		}(np)
	}
	wg.Wait()
}
